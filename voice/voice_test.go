package voice

import (
	"errors"
	"testing"
)

func TestParseTranscript(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
		err  error
	}{
		{
			name: "hypothesis with trailing status",
			out:  "позвони маме\nsend end of stream\n",
			want: "позвони маме",
		},
		{
			name: "multiline hypothesis",
			out:  "напомни\nзавтра\nsend end of stream\n",
			want: "напомни завтра",
		},
		{
			name: "only status line",
			out:  "send end of stream\n",
			err:  ErrNotRecognized,
		},
		{
			name: "empty output",
			out:  "",
			err:  ErrNotRecognized,
		},
		{
			name: "blank lines ignored",
			out:  "\n\nтекст\n\nsend end of stream\n",
			want: "текст",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranscript(tt.out)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
