package codec

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want string
	}{
		{name: "zero", id: 0, want: "AAAAAAAA"},
		{name: "first record", id: 1, want: "AAAAAAAB"},
		{name: "second record", id: 2, want: "AAAAAAAC"},
		{name: "one byte boundary", id: 255, want: "AAAAAAD_"},
		{name: "largest id", id: MaxID, want: "________"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Encode(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
			assert.Len(t, code, Length)
		})
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	for _, id := range []int64{-1, MaxID + 1, 1 << 62} {
		_, err := Encode(id)
		assert.ErrorIs(t, err, ErrEncoding, "id %d", id)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    int64
		wantErr bool
	}{
		{name: "first record", code: "AAAAAAAB", want: 1},
		{name: "largest id", code: "________", want: MaxID},
		{name: "too short", code: "invalid", wantErr: true},
		{name: "too long", code: "AAAAAAAAA", wantErr: true},
		{name: "empty", code: "", wantErr: true},
		{name: "padding", code: "AAAAAAA=", wantErr: true},
		{name: "standard alphabet plus", code: "AAAA+AAA", wantErr: true},
		{name: "standard alphabet slash", code: "AAAA/AAA", wantErr: true},
		{name: "space", code: "AAAA AAA", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Decode(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDecoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"01234567", "AAAAAAAB", "00000000", "--------", "________", "ZZZZZZZZ"}
	for _, code := range valid {
		assert.True(t, IsValid(code), "code %q", code)
	}

	invalid := []string{"", "0123456", "012345678", "AAAAAAA=", "AAAA+AAA", "AAAA/AAA", "AAAA.AAA", "ÄAAAAAA", strings.Repeat("A", 64)}
	for _, code := range invalid {
		assert.False(t, IsValid(code), "code %q", code)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[string]int64)

	ids := []int64{0, 1, 2, 63, 64, 255, 256, 1<<24 - 1, 1 << 24, MaxID - 1, MaxID}
	for i := 0; i < 10000; i++ {
		ids = append(ids, rng.Int63n(MaxID+1))
	}

	for _, id := range ids {
		code, err := Encode(id)
		require.NoError(t, err)
		require.True(t, IsValid(code), "encode(%d) = %q must be valid", id, code)

		decoded, err := Decode(code)
		require.NoError(t, err)
		require.Equal(t, id, decoded)

		if prev, ok := seen[code]; ok {
			require.Equal(t, prev, id, "code %q produced by two ids", code)
		}
		seen[code] = id
	}
}

func TestDecodeThenEncodeIsIdentity(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 1000; i++ {
		var b strings.Builder
		for j := 0; j < Length; j++ {
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		code := b.String()

		id, err := Decode(code)
		require.NoError(t, err)
		encoded, err := Encode(id)
		require.NoError(t, err)
		assert.Equal(t, code, encoded)
	}
}

func BenchmarkIsValid(b *testing.B) {
	for i := 0; i < b.N; i++ {
		IsValid("AAAAAAAB")
	}
}
