package utils

import "github.com/aarondl/null/v8"

func SafeDeref[T any](ptr *T) T {
	if ptr == nil {
		var zero T
		return zero
	}
	return *ptr
}

func ToPtr[T any](v T) *T {
	return &v
}

// NullStringPtr переводит null.String в указатель; пустая строка считается отсутствием значения.
func NullStringPtr(s null.String) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}

func NullFloat64Ptr(f null.Float64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func NullUint64Ptr(i null.Uint64) *uint64 {
	if !i.Valid {
		return nil
	}
	v := i.Uint64
	return &v
}
