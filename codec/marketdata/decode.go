package marketdata

import "hftwire/domain/message"

// Decode reads the record at the start of src.
func Decode(src []byte) (message.MarketData, error) { return DecodeAt(src, 0) }

// DecodeAt reads the record starting at base.
func DecodeAt(src []byte, base int) (message.MarketData, error) {
	r, err := View(src, base)
	if err != nil {
		return message.MarketData{}, err
	}
	return r.Decode(), nil
}

// DecodeBatch decodes count back-to-back records from src.
func DecodeBatch(src []byte, count int) ([]message.MarketData, error) {
	if err := layout.Batch(src, count); err != nil {
		return nil, err
	}
	out := make([]message.MarketData, count)
	decodeInto(src, out)
	return out, nil
}

// DecodeBatchInto fills out from the first len(out) records of src
// without allocating a result slice.
func DecodeBatchInto(src []byte, out []message.MarketData) error {
	if err := layout.Batch(src, len(out)); err != nil {
		return err
	}
	decodeInto(src, out)
	return nil
}

func decodeInto(src []byte, out []message.MarketData) {
	for i := range out {
		r, _ := View(src, i*RecordSize)
		out[i] = r.Decode()
	}
}
