package api

import "testing"

func TestAllowedAttachment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		filename string
		want     bool
	}{
		{name: "pdf", filename: "cim_package.pdf", want: true},
		{name: "uppercase extension", filename: "FINANCIALS.PDF", want: true},
		{name: "docx", filename: "loi draft.docx", want: true},
		{name: "plain text", filename: "notes.txt", want: true},
		{name: "jpeg photo", filename: "storefront.jpeg", want: true},
		{name: "executable", filename: "installer.exe", want: false},
		{name: "shell script", filename: "run.sh", want: false},
		{name: "no extension", filename: "README", want: false},
		{name: "empty", filename: "", want: false},
		{name: "trailing whitespace", filename: "summary.pdf  ", want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := allowedAttachment(tc.filename)
			if got != tc.want {
				t.Fatalf("allowedAttachment(%q) = %v, want %v", tc.filename, got, tc.want)
			}
		})
	}
}
