package utils

// OrDefault runs fn and substitutes def when it fails. Extractors apply
// it per optional field so a missing block yields a placeholder instead
// of aborting the record.
func OrDefault[T any](fn func() (T, error), def T) T {
	v, err := fn()
	if err != nil {
		return def
	}
	return v
}
