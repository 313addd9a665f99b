package dataurl_test

import (
	"testing"

	"github.com/kdduha/snap2html/backend/internal/dataurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    dataurl.DataURL
		wantErr error
	}{
		{
			name:  "png",
			input: "data:image/png;base64,AAAA",
			want:  dataurl.DataURL{MIMEType: "image/png", Payload: "AAAA"},
		},
		{
			name:  "uppercase media type is normalized",
			input: "data:IMAGE/JPEG;base64,/9j/",
			want:  dataurl.DataURL{MIMEType: "image/jpeg", Payload: "/9j/"},
		},
		{
			name:  "surrounding whitespace",
			input: "  data:application/pdf;base64,JVBERi0=\n",
			want:  dataurl.DataURL{MIMEType: "application/pdf", Payload: "JVBERi0="},
		},
		{
			name:    "missing prefix",
			input:   "image/png;base64,AAAA",
			wantErr: dataurl.ErrMissingPrefix,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: dataurl.ErrMissingPrefix,
		},
		{
			name:    "no base64 marker",
			input:   "data:image/png,AAAA",
			wantErr: dataurl.ErrMalformed,
		},
		{
			name:    "no media type",
			input:   "data:;base64,AAAA",
			wantErr: dataurl.ErrMalformed,
		},
		{
			name:    "empty payload",
			input:   "data:image/png;base64,",
			wantErr: dataurl.ErrEmptyPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataurl.Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateImage(t *testing.T) {
	_, err := dataurl.ValidateImage("data:image/webp;base64,UklGRg==")
	assert.NoError(t, err)

	_, err = dataurl.ValidateImage("data:application/pdf;base64,JVBERi0=")
	assert.ErrorIs(t, err, dataurl.ErrUnsupportedType)

	_, err = dataurl.ValidateImage("data:text/plain;base64,aGVsbG8=")
	assert.ErrorIs(t, err, dataurl.ErrUnsupportedType)

	_, err = dataurl.ValidateImage("https://example.com/cat.png")
	assert.ErrorIs(t, err, dataurl.ErrMissingPrefix)
}

func TestFromBytesRoundTrip(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	s := dataurl.FromBytes(dataurl.MIMEPNG, raw)
	assert.Equal(t, "data:image/png;base64,iVBORw==", s)

	d, err := dataurl.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, s, d.String())

	decoded, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestBytesInvalidBase64(t *testing.T) {
	d := dataurl.DataURL{MIMEType: dataurl.MIMEPNG, Payload: "!!!"}
	_, err := d.Bytes()
	assert.Error(t, err)
}
