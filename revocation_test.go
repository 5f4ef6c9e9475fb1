package identity

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRevocationRegistry(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry()
	future := time.Now().Add(time.Hour)

	require.False(t, r.IsRevoked("jti-1"))

	r.Revoke("jti-1", future)
	require.True(t, r.IsRevoked("jti-1"))
	require.False(t, r.IsRevoked("jti-2"))

	// no-ops
	r.Revoke("", future)
	r.Revoke("jti-past", time.Now().Add(-time.Minute))
	require.False(t, r.IsRevoked(""))
	require.False(t, r.IsRevoked("jti-past"))
	require.Equal(t, 1, r.size())
}

func TestRevocationRegistry_TryRevoke(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry()
	future := time.Now().Add(time.Hour)

	require.True(t, r.TryRevoke("jti-1", future))
	require.False(t, r.TryRevoke("jti-1", future), "second insert of a live jti must lose")
	require.True(t, r.IsRevoked("jti-1"))

	require.False(t, r.TryRevoke("", future))
	require.False(t, r.TryRevoke("jti-past", time.Now().Add(-time.Minute)))

	// an expired entry no longer blocks a fresh insert
	r.Revoke("jti-short", time.Now().Add(20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	require.True(t, r.TryRevoke("jti-short", future))
}

func TestRevocationRegistry_TryRevokeConcurrent(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry()
	expiry := time.Now().Add(time.Hour)

	const attempts = 16
	var wg sync.WaitGroup
	var wins atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryRevoke("jti-contested", expiry) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
}

func TestRevocationRegistry_ExpiryPrunesLazily(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry()
	r.Revoke("jti-short", time.Now().Add(30*time.Millisecond))
	require.True(t, r.IsRevoked("jti-short"))

	time.Sleep(50 * time.Millisecond)

	require.False(t, r.IsRevoked("jti-short"))
	require.Zero(t, r.size())
}

func TestRevocationRegistry_Sweep(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry()
	r.Revoke("jti-live", time.Now().Add(time.Hour))
	r.Revoke("jti-dead", time.Now().Add(20*time.Millisecond))
	require.Equal(t, 2, r.size())

	time.Sleep(40 * time.Millisecond)
	r.Sweep()

	require.Equal(t, 1, r.size())
	require.True(t, r.IsRevoked("jti-live"))
}

func TestRevocationRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry()
	expiry := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				jti := fmt.Sprintf("jti-%d-%d", n, j)
				r.Revoke(jti, expiry)
				r.IsRevoked(jti)
				if j%10 == 0 {
					r.Sweep()
				}
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 16*100, r.size())
}
