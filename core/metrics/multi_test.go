package metrics

import (
	"errors"
	"testing"
)

// recordSink counts forwarded events and optionally implements PartitionRecorder.

type recordSink struct {
	count int
}

func (r *recordSink) RecordGeneration([]GenerationEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordPartition(PartitionEvent) error {
	r.count++
	return nil
}

// generationOnlySink implements only the required MetricsSink method.
type generationOnlySink struct {
	count int
}

func (g *generationOnlySink) RecordGeneration([]GenerationEvent) error {
	g.count++
	return nil
}

type failingSink struct{}

func (failingSink) RecordGeneration([]GenerationEvent) error {
	return errors.New("sink down")
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordGeneration(nil); err != nil {
		t.Fatalf("record generation: %v", err)
	}
	if err := m.RecordPartition(PartitionEvent{}); err != nil {
		t.Fatalf("record partition: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
}

// Optional recorders are skipped for sinks that do not implement them.
func TestMultiSink_OptionalRecorder(t *testing.T) {
	s1 := &recordSink{}
	s2 := &generationOnlySink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordPartition(PartitionEvent{}); err != nil {
		t.Fatalf("record partition: %v", err)
	}
	if s1.count != 1 {
		t.Fatalf("partition not forwarded to recorder")
	}
	if s2.count != 0 {
		t.Fatalf("partition forwarded to sink without recorder")
	}
	if err := m.RecordAnomaly(AnomalyEvent{}); err != nil {
		t.Fatalf("record anomaly: %v", err)
	}
}

func TestMultiSink_FirstError(t *testing.T) {
	s := &recordSink{}
	m := NewMultiSink(failingSink{}, s)
	if err := m.RecordGeneration(nil); err == nil {
		t.Fatal("expected error from failing sink")
	}
	if s.count != 0 {
		t.Fatalf("forwarding did not stop on error")
	}
}
