package server

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEvaluationManager_ConcurrencyLimit(t *testing.T) {
	manager := NewEvaluationManagerWithRegistry(2, prometheus.NewRegistry())
	assert.Equal(t, 0, manager.GetActiveEvaluations())

	assert.True(t, manager.Acquire(KindTemplate))
	assert.True(t, manager.Acquire(KindExpression))
	assert.False(t, manager.Acquire(KindTemplate))
	assert.Equal(t, 2, manager.GetActiveEvaluations())

	manager.Release(KindTemplate, time.Millisecond, 2)
	assert.Equal(t, 1, manager.GetActiveEvaluations())
	assert.True(t, manager.Acquire(KindTemplate))

	assert.Equal(t, float64(2), testutil.ToFloat64(manager.totalEvaluations.WithLabelValues(KindTemplate)))
	assert.Equal(t, float64(1), testutil.ToFloat64(manager.totalEvaluations.WithLabelValues(KindExpression)))
	assert.Equal(t, float64(2), testutil.ToFloat64(manager.evaluationErrors.WithLabelValues(KindTemplate)))
	assert.Equal(t, float64(2), testutil.ToFloat64(manager.activeEvaluations))
}

func TestEvaluationManager_Concurrent(t *testing.T) {
	manager := NewEvaluationManagerWithRegistry(5, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if manager.Acquire(KindExpression) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, acquired)
	assert.Equal(t, 5, manager.GetActiveEvaluations())
}
