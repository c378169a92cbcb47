package lines

// View returns a buffer sharing this buffer's backing data with an
// independent cursor. Views exist so optimization workers can replay the
// same preloaded series concurrently without sharing cursor state; the
// viewed buffer must not be appended to afterwards. Only unbounded buffers
// support views.
func (b *Buffer) View() *Buffer {
	if b.maxlen > 0 {
		return nil
	}
	return &Buffer{data: b.data, minperiod: b.minperiod}
}

// View returns a series of views over the same backing data.
func (s *Series) View() *Series {
	v := &Series{byName: make(map[string]int, len(s.names))}
	for i, name := range s.names {
		v.names = append(v.names, name)
		v.lines = append(v.lines, s.lines[i].View())
		v.byName[name] = i
	}
	return v
}

// View returns an OHLCV view over the same backing data.
func (s *OHLCV) View() *OHLCV {
	return &OHLCV{Series: s.Series.View()}
}

// View returns a data-series view over the same backing data.
func (d *Data) View() *Data {
	ohlcv := d.OHLCV.View()
	dt, _ := ohlcv.LineByName("datetime")
	return &Data{OHLCV: ohlcv, datetime: dt}
}
