package partition

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "lei8p2rIzx2IW5MJjaAiJTu_7J8QoxZ6ivKlvZXsnGk"

func ptr[T any](v T) *T { return &v }

func TestDeriveID_KnownVector(t *testing.T) {
	k := Key{Secret: testSecret, Salt: "salt", Shift: 500000}
	assert.Equal(t, "0252d357242e7d43e1b19d54669f9113c5b7cc87bfcb5d8246aafe9e237b30c8", DeriveID(k))
	assert.Equal(t, DeriveID(k), k.ID())
}

func TestDeriveID_SensitiveToEachField(t *testing.T) {
	base := Key{Secret: testSecret, Salt: "salt", Shift: 500000}
	id := DeriveID(base)

	assert.NotEqual(t, id, DeriveID(Key{Secret: "other", Salt: "salt", Shift: 500000}))
	assert.NotEqual(t, id, DeriveID(Key{Secret: testSecret, Salt: "pepper", Shift: 500000}))
	assert.NotEqual(t, id, DeriveID(Key{Secret: testSecret, Salt: "salt", Shift: 500001}))
}

func TestResolve(t *testing.T) {
	defaults := Key{Secret: "s", Salt: "salt", Shift: 10}

	tests := []struct {
		name string
		in   *Override
		want Key
	}{
		{name: "nil override", in: nil, want: defaults},
		{name: "empty override", in: &Override{}, want: defaults},
		{name: "empty strings fall back", in: &Override{Secret: ptr(""), Salt: ptr("")}, want: defaults},
		{name: "explicit zero shift kept", in: &Override{Shift: ptr(int64(0))}, want: Key{Secret: "s", Salt: "salt", Shift: 0}},
		{
			name: "full override",
			in:   &Override{Secret: ptr("s2"), Salt: ptr("pepper"), Shift: ptr(int64(-5))},
			want: Key{Secret: "s2", Salt: "pepper", Shift: -5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in, defaults))
		})
	}
}

func TestPruneBoundary(t *testing.T) {
	now := time.Unix(1700000000, 0)

	got := PruneBoundary(now, 500000, 60)
	want := big.NewInt(1700000000 - 1609459200 - 500000 - 60*86400)
	assert.Equal(t, 0, want.Cmp(got), "got %s want %s", got, want)

	assert.Equal(t, 0, PruneBoundary(now, 0, 0).Cmp(big.NewInt(1700000000-1609459200)))
}

func TestEpochConversions(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.Equal(t, int64(1700000000-1609459200), FromTime(now))
	assert.Equal(t, int64(1700000000), ToUnix(FromTime(now)))
}
