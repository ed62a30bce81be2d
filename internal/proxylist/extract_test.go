package proxylist

import (
	"testing"
)

func TestExtractFromText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain list",
			text: "1.2.3.4:1080\n5.6.7.8:4145\n",
			want: []string{"1.2.3.4:1080", "5.6.7.8:4145"},
		},
		{
			name: "candidates embedded in decoration",
			text: "<td>9.9.9.9:1080</td> alive 120ms | 8.8.8.8:3128 US",
			want: []string{"9.9.9.9:1080", "8.8.8.8:3128"},
		},
		{
			name: "invalid octets are rejected after matching",
			text: "1.2.3.256:1080\n1.2.3.4:1080",
			want: []string{"1.2.3.4:1080"},
		},
		{
			name: "port above range is rejected",
			text: "1.2.3.4:99999 1.2.3.4:80",
			want: []string{"1.2.3.4:80"},
		},
		{
			name: "duplicates collapse to first sighting",
			text: "1.2.3.4:1080\n1.2.3.4:1080\n",
			want: []string{"1.2.3.4:1080"},
		},
		{
			name: "no candidates",
			text: "nothing to see here",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractFromText(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d endpoints, got %d", len(tt.want), len(got))
			}
			for i, want := range tt.want {
				if got[i].String() != want {
					t.Errorf("position %d: expected %s, got %s", i, want, got[i])
				}
			}
		})
	}
}

func TestExtractFromJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		jsonPath string
		want     []string
		wantErr  bool
	}{
		{
			name:     "object list under a path",
			body:     `{"data":[{"ip":"1.2.3.4","port":"1080"},{"ip":"5.6.7.8","port":4145}]}`,
			jsonPath: "data",
			want:     []string{"1.2.3.4:1080", "5.6.7.8:4145"},
		},
		{
			name: "top level object list with host key",
			body: `[{"host":"9.9.9.9","port":1080},{"address":"8.8.8.8","port":3128}]`,
			want: []string{"9.9.9.9:1080", "8.8.8.8:3128"},
		},
		{
			name: "string items",
			body: `["1.2.3.4:1080","5.6.7.8:4145"]`,
			want: []string{"1.2.3.4:1080", "5.6.7.8:4145"},
		},
		{
			name: "items without usable address are skipped",
			body: `[{"port":1080},{"ip":"1.2.3.4"},{"ip":"5.6.7.8","port":1080}]`,
			want: []string{"5.6.7.8:1080"},
		},
		{
			name:    "invalid json",
			body:    `{"data": not-json}`,
			wantErr: true,
		},
		{
			name:     "missing path key",
			body:     `{"results":[]}`,
			jsonPath: "data",
			wantErr:  true,
		},
		{
			name:     "path points at a non-list",
			body:     `{"data":{"ip":"1.2.3.4"}}`,
			jsonPath: "data",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractFromJSON([]byte(tt.body), tt.jsonPath)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d endpoints, got %d", len(tt.want), len(got))
			}
			for i, want := range tt.want {
				if got[i].String() != want {
					t.Errorf("position %d: expected %s, got %s", i, want, got[i])
				}
			}
		})
	}
}
