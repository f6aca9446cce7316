package framing

// DecodeAll runs rule over a complete stream held in memory and returns every
// message, the end-of-stream one included. Messages decoded before a failure
// are returned along with the error.
func DecodeAll[M any](rule Rule[M], config Config, chunks ...[]byte) ([]M, error) {
	p, err := NewProcessor(rule, config)
	if err != nil {
		return nil, err
	}

	var msgs []M
	sink := func(msg M) { msgs = append(msgs, msg) }

	for _, chunk := range chunks {
		if err := p.Process(chunk, sink); err != nil {
			return msgs, err
		}
	}
	if err := p.Finish(true, sink); err != nil {
		return msgs, err
	}
	return msgs, nil
}
