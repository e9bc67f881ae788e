package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_PreservesRecordOrder(t *testing.T) {
	r := NewRecorder()
	r.Record(Warning{Kind: KindManifestMismatch, Subject: "slide"})
	r.Record(Warning{Kind: KindSelectionMismatch, Subject: "sceneZ"})

	got := r.Warnings()
	assert.Len(t, got, 2)
	assert.Equal(t, KindManifestMismatch, got[0].Kind)
	assert.Equal(t, "sceneZ", got[1].Subject)
}

func TestRecorder_WarningsReturnsSnapshot(t *testing.T) {
	r := NewRecorder()
	r.Record(Warning{Kind: KindSelectionMismatch, Subject: "a"})

	snap := r.Warnings()
	snap[0].Subject = "mutated"

	assert.Equal(t, "a", r.Warnings()[0].Subject)
}

type panicSink struct{}

func (panicSink) Record(Warning) { panic("sink bug") }

func TestSafeRecord_IsInert(t *testing.T) {
	assert.NotPanics(t, func() {
		SafeRecord(nil, Warning{})
		SafeRecord(panicSink{}, Warning{})
	})
}
