package metrics

// MultiSink fans out recorded events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordGeneration forwards the estimates to all sinks, returning the first error encountered.
func (m *MultiSink) RecordGeneration(estimates []GenerationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordGeneration(estimates); err != nil {
			return err
		}
	}
	return nil
}

// RecordPartition forwards partition run outcomes when supported by the sink.
func (m *MultiSink) RecordPartition(ev PartitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PartitionRecorder); ok {
			if err := rec.RecordPartition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAnomaly forwards anomalies when supported by the sink.
func (m *MultiSink) RecordAnomaly(ev AnomalyEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AnomalyRecorder); ok {
			if err := rec.RecordAnomaly(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAssignment forwards assignment summaries when supported by the sink.
func (m *MultiSink) RecordAssignment(ev AssignmentEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AssignmentRecorder); ok {
			if err := rec.RecordAssignment(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordWeatherFetch forwards fetch outcomes when supported by the sink.
func (m *MultiSink) RecordWeatherFetch(ev WeatherFetchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(WeatherFetchRecorder); ok {
			if err := rec.RecordWeatherFetch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
