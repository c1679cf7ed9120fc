package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletionsFromCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []Deletion
	}{
		{
			name:    "simple rm",
			command: "rm file.txt",
			want:    []Deletion{{Path: "file.txt"}},
		},
		{
			name:    "rm multiple files",
			command: "rm a.txt b.txt",
			want:    []Deletion{{Path: "a.txt"}, {Path: "b.txt"}},
		},
		{
			name:    "rm -rf directory",
			command: "rm -rf build/",
			want:    []Deletion{{Path: "build/", Recursive: true}},
		},
		{
			name:    "rm -R uppercase",
			command: "rm -R dir",
			want:    []Deletion{{Path: "dir", Recursive: true}},
		},
		{
			name:    "long recursive flag",
			command: "rm --recursive dir",
			want:    []Deletion{{Path: "dir", Recursive: true}},
		},
		{
			name:    "force without recursive",
			command: "rm -f file.txt",
			want:    []Deletion{{Path: "file.txt"}},
		},
		{
			name:    "git rm",
			command: "git rm old.go",
			want:    []Deletion{{Path: "old.go"}},
		},
		{
			name:    "git rm cached still tracked as deletion",
			command: "git rm --cached secret.env",
			want:    []Deletion{{Path: "secret.env"}},
		},
		{
			name:    "double dash ends flags",
			command: "rm -- -weird-name",
			want:    []Deletion{{Path: "-weird-name"}},
		},
		{
			name:    "chained commands",
			command: "make clean && rm out.log; echo done",
			want:    []Deletion{{Path: "out.log"}},
		},
		{
			name:    "pipeline segment",
			command: "ls | rm dead.txt",
			want:    []Deletion{{Path: "dead.txt"}},
		},
		{
			name:    "sudo prefix",
			command: "sudo rm /etc/stale.conf",
			want:    []Deletion{{Path: "/etc/stale.conf"}},
		},
		{
			name:    "env assignment prefix",
			command: "FOO=bar rm tmp.txt",
			want:    []Deletion{{Path: "tmp.txt"}},
		},
		{
			name:    "quoted path with spaces",
			command: `rm "my file.txt"`,
			want:    []Deletion{{Path: "my file.txt"}},
		},
		{
			name:    "single quoted path",
			command: "rm 'a b.txt'",
			want:    []Deletion{{Path: "a b.txt"}},
		},
		{
			name:    "escaped space",
			command: `rm my\ file.txt`,
			want:    []Deletion{{Path: "my file.txt"}},
		},
		{
			name:    "glob recorded verbatim",
			command: "rm *.log",
			want:    []Deletion{{Path: "*.log"}},
		},
		{
			name:    "no deletions",
			command: "go test ./...",
			want:    nil,
		},
		{
			name:    "rm in argument position is not a removal",
			command: "echo rm file.txt",
			want:    nil,
		},
		{
			name:    "git without rm subcommand",
			command: "git status",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeletionsFromCommand(tt.command)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_Separators(t *testing.T) {
	tokens := tokenize("a&&b || c;d|e")
	want := []string{"a", "&&", "b", "||", "c", ";", "d", "|", "e"}
	assert.Equal(t, want, tokens)
}
