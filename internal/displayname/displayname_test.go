package displayname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "s1mple", "s1mple"},
		{"doubled with space", "foo foo", "foo"},
		{"doubled name", "Ivan Ivan", "Ivan"},
		{"doubled with quote", "Ivan'Ivan", "Ivan"},
		{"doubled with hyphen", "NiKo-niko", "NiKo"},
		{"doubled different case", "Zeus ZEUS", "Zeus"},
		{"repeated token", "Ivan Ivan Petrov", "Ivan Petrov"},
		{"intentional repeat collapsed", "Mary Anne Mary", "Mary Anne"},
		{"half is prefix of other half", "Ivan Ivanov", "Ivan"},
		{"longer half first kept", "Ivanov Ivan", "Ivanov Ivan"},
		{"shared prefix off the midpoint", "Anna Annabelle", "Anna Annabelle"},
		{"underscore kept", "na_vi", "na_vi"},
		{"whitespace collapsed", "John   Smith", "John Smith"},
		{"surrounding space", "  electronic  ", "electronic"},
		{"single rune", "a", "a"},
		{"only symbols", "@@@", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dedupe(tt.in))
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		in   Subject
		want string
	}{
		{"username wins", Subject{Username: "s1mple", Name: "Ivan Ivan Petrov", Email: "a@b.com"}, "@s1mple"},
		{"name never used", Subject{Name: "x", Email: "p@q.com"}, "p@q.com"},
		{"username deduped", Subject{Username: "foo foo", Email: "a@b.com"}, "@foo"},
		{"leading at stripped", Subject{Username: "  @zeus ", Email: "a@b.com"}, "@zeus"},
		{"only at", Subject{Username: "@", Email: "a@b.com"}, "a@b.com"},
		{"blank username", Subject{Username: "   ", Email: "a@b.com"}, "a@b.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.in))
		})
	}
}

func TestInitial(t *testing.T) {
	tests := []struct {
		name string
		in   Subject
		want string
	}{
		{"username", Subject{Username: "s1mple", Name: "Oleksandr", Email: "a@b.com"}, "S"},
		{"username with at", Subject{Username: "@zeus", Email: "a@b.com"}, "Z"},
		{"name when no username", Subject{Name: "ivan", Email: "x@y.com"}, "I"},
		{"email last", Subject{Email: "p@q.com"}, "P"},
		{"unicode", Subject{Name: "élan", Email: "x@y.com"}, "É"},
		{"nothing", Subject{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initial(tt.in))
		})
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "", CleanName("   "))
	assert.Equal(t, "Ivan Petrov", CleanName("Ivan Ivan Petrov"))
	assert.Equal(t, "Oleksandr", CleanName("Oleksandr Oleksandr"))
}
