package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("REQARR_TEST_TMDB_KEY", "tmdb-secret")
	t.Setenv("REQARR_TEST_EMPTY", "")
	t.Setenv("REQARR_TEST_SONARR_URL", "http://sonarr:8989")

	tests := []struct {
		name    string
		in      string
		want    string
		missing []string
	}{
		{
			name: "plain reference",
			in:   `api_key = "${REQARR_TEST_TMDB_KEY}"`,
			want: `api_key = "tmdb-secret"`,
		},
		{
			name:    "unset reference is kept and reported",
			in:      `api_key = "${REQARR_TEST_NEVER_SET}"`,
			want:    `api_key = "${REQARR_TEST_NEVER_SET}"`,
			missing: []string{"REQARR_TEST_NEVER_SET"},
		},
		{
			name: "set but empty counts as set",
			in:   `admin_api_key = "${REQARR_TEST_EMPTY}"`,
			want: `admin_api_key = ""`,
		},
		{
			name: "default when empty",
			in:   `url = "${REQARR_TEST_EMPTY:-http://localhost:8989}"`,
			want: `url = "http://localhost:8989"`,
		},
		{
			name: "default ignored when set",
			in:   `url = "${REQARR_TEST_SONARR_URL:-http://localhost:8989}"`,
			want: `url = "http://sonarr:8989"`,
		},
		{
			name:    "required with message",
			in:      `api_key = "${REQARR_TEST_EMPTY:?get one at themoviedb.org}"`,
			want:    `api_key = "${REQARR_TEST_EMPTY:?get one at themoviedb.org}"`,
			missing: []string{"REQARR_TEST_EMPTY: get one at themoviedb.org"},
		},
		{
			name: "whole tables",
			in: "[tmdb]\napi_key = \"${REQARR_TEST_TMDB_KEY}\"\n\n" +
				"[sonarr]\nurl = \"${REQARR_TEST_SONARR_URL}\"\napi_key = \"${REQARR_TEST_SONARR_KEY}\"\n",
			want: "[tmdb]\napi_key = \"tmdb-secret\"\n\n" +
				"[sonarr]\nurl = \"http://sonarr:8989\"\napi_key = \"${REQARR_TEST_SONARR_KEY}\"\n",
			missing: []string{"REQARR_TEST_SONARR_KEY"},
		},
		{
			name: "dollar without braces is literal",
			in:   `webhook_token = "$REQARR_TEST_TMDB_KEY"`,
			want: `webhook_token = "$REQARR_TEST_TMDB_KEY"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := substituteEnvVars(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.missing, missing)
		})
	}
}
