package order

import "hftwire/domain/message"

func Decode(src []byte) (message.Order, error) { return DecodeAt(src, 0) }

func DecodeAt(src []byte, base int) (message.Order, error) {
	rec, err := View(src, base)
	if err != nil {
		return message.Order{}, err
	}
	return rec.Decode(), nil
}

// DecodeBatch decodes count back-to-back records from src.
func DecodeBatch(src []byte, count int) ([]message.Order, error) {
	if err := layout.Batch(src, count); err != nil {
		return nil, err
	}
	out := make([]message.Order, count)
	for i := range out {
		rec, _ := View(src, i*RecordSize)
		out[i] = rec.Decode()
	}
	return out, nil
}

// DecodeBatchInto fills out from the first len(out) records of src.
func DecodeBatchInto(src []byte, out []message.Order) error {
	if err := layout.Batch(src, len(out)); err != nil {
		return err
	}
	for i := range out {
		rec, _ := View(src, i*RecordSize)
		out[i] = rec.Decode()
	}
	return nil
}
