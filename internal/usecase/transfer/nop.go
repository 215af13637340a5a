package transfer

type nopMetrics struct{}

func (nopMetrics) RecordLookup(string, float64)         {}
func (nopMetrics) RecordStaleLookup()                   {}
func (nopMetrics) RecordValidationError(string, string) {}
func (nopMetrics) RecordDispatch(string, string)        {}
func (nopMetrics) RecordSessions(int)                   {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordLatency(string, float64)        {}
