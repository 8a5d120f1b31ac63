package cache

import (
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	tests := []struct {
		name    string
		ttl     time.Duration
		wantTTL time.Duration
	}{
		{name: "explicit ttl", ttl: time.Hour, wantTTL: time.Hour},
		{name: "zero ttl falls back to default", ttl: 0, wantTTL: DefaultTTL},
		{name: "negative ttl falls back to default", ttl: -time.Minute, wantTTL: DefaultTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry([]byte(`{"a":1}`), tt.ttl)

			if string(entry.Data) != `{"a":1}` {
				t.Errorf("Data = %s", entry.Data)
			}
			if entry.StatusCode != 200 {
				t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
			}
			got := entry.TTL()
			if got < tt.wantTTL-time.Second || got > tt.wantTTL {
				t.Errorf("TTL() = %v, want about %v", got, tt.wantTTL)
			}
			if entry.CachedAt.IsZero() {
				t.Error("CachedAt not set")
			}
		})
	}
}

func TestCacheEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{
			name:    "expired entry",
			expires: time.Now().Add(-1 * time.Hour),
			want:    true,
		},
		{
			name:    "valid entry",
			expires: time.Now().Add(1 * time.Hour),
			want:    false,
		},
		{
			name:    "just expired",
			expires: time.Now().Add(-1 * time.Second),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{
				Expires: tt.expires,
			}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheEntry_TTL(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "one hour remaining",
			expires: time.Now().Add(1 * time.Hour),
			wantMin: 59 * time.Minute,
			wantMax: 61 * time.Minute,
		},
		{
			name:    "already expired",
			expires: time.Now().Add(-1 * time.Hour),
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{
				Expires: tt.expires,
			}
			got := entry.TTL()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TTL() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}
