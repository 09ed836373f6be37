package query

// Bind builds the collection for parameter name from its raw values.
//
// Repeated values take the fast path. A single value is split on its
// detected separator, falling back to DefaultSeparator; the fallback is
// reported as a *BindingError while the returned collection stays usable.
// A *ParseError means nothing could be bound.
func Bind(name string, raw []string) (MultiValueParam, error) {
	switch len(raw) {
	case 0:
		return MultiValueParam{}, nil
	case 1:
	default:
		return New(raw...), nil
	}

	value := raw[0]
	if value == "" {
		return MultiValueParam{}, nil
	}

	var bindErr error
	sep, ok := DetectSeparator(value)
	if !ok {
		sep = DefaultSeparator
		bindErr = &BindingError{Field: name, Value: value}
	}

	m, ok := TryParse(value, sep)
	if !ok {
		return MultiValueParam{}, &ParseError{Field: name}
	}
	return m, bindErr
}
