package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type probeRequest struct {
	URL      string `json:"url" validate:"required,serverurl"`
	Attempts int    `json:"attempts" validate:"gte=1,lte=10"`
}

func TestValidateStructSuccess(t *testing.T) {
	err := ValidateStruct(probeRequest{URL: "https://open.rocket.chat", Attempts: 5})
	require.NoError(t, err)
}

func TestValidateStructFailures(t *testing.T) {
	err := ValidateStruct(probeRequest{URL: "ftp://example.com", Attempts: 0})
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 2)
	require.Equal(t, "probeRequest.url", vErrs[0].Field)
	require.Equal(t, "serverurl", vErrs[0].Tag)
	require.Equal(t, "gte", vErrs[1].Tag)
	require.Equal(t, "1", vErrs[1].Param)
	require.Contains(t, err.Error(), "probeRequest.attempts failed on gte=1")
}

func TestNormalizeServerURL(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: " https://chat.example.com/ ", want: "https://chat.example.com"},
		{in: "http://localhost:3000//", want: "http://localhost:3000"},
		{in: "chat.example.com", wantErr: true},
		{in: "ws://chat.example.com", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := NormalizeServerURL(tc.in)
		if tc.wantErr {
			require.ErrorIs(t, err, ErrInvalidServerURL, tc.in)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("always_fail", func(fl validator.FieldLevel) bool { return false })
	require.NoError(t, err)

	type payload struct {
		Name string `json:"name" validate:"always_fail"`
	}

	err = ValidateStruct(payload{Name: "x"})
	require.Error(t, err)
}
