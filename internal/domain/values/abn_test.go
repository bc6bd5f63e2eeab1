package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewABN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:  "valid ABN",
			input: "51824753556",
		},
		{
			name:  "valid ABN with conventional spacing",
			input: "51 824 753 556",
		},
		{
			name:  "another valid ABN",
			input: "53 004 085 616",
		},
		{
			name:    "last digit altered fails checksum",
			input:   "51824753557",
			wantErr: "ABN checksum validation failed",
		},
		{
			name:    "ten digits rejected",
			input:   "5182475355",
			wantErr: "ABN must be exactly 11 digits",
		},
		{
			name:    "twelve digits rejected",
			input:   "518247535561",
			wantErr: "ABN must be exactly 11 digits",
		},
		{
			name:    "non-numeric rejected",
			input:   "51824A53556",
			wantErr: "ABN must be exactly 11 digits",
		},
		{
			name:    "empty rejected",
			input:   "",
			wantErr: "ABN must be exactly 11 digits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abn, err := NewABN(tt.input)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, abn.IsEmpty())
				return
			}

			require.NoError(t, err)
			assert.Len(t, abn.String(), 11)
		})
	}
}

func TestValidateABN(t *testing.T) {
	assert.NoError(t, ValidateABN("51 824 753 556"))
	assert.Error(t, ValidateABN("51 824 753 557"))
	assert.Error(t, ValidateABN("1234567890"))
}

func TestABN_Formatted(t *testing.T) {
	abn := MustNewABN("51824753556")
	assert.Equal(t, "51 824 753 556", abn.Formatted())
}

func TestABN_JSONRoundTrip(t *testing.T) {
	abn := MustNewABN("51824753556")

	data, err := json.Marshal(abn)
	require.NoError(t, err)
	assert.Equal(t, `"51824753556"`, string(data))

	var decoded ABN
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, abn.Equal(decoded))

	var invalid ABN
	assert.Error(t, json.Unmarshal([]byte(`"51824753557"`), &invalid))
}
