package slug

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Other Note", "other-note"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Hello, World!", "hello-world"},
		{"a + b", "a-b"},
		{"snake_case_name", "snake_case_name"},
		{"学习 笔记", "学习-笔记"},
		{"Go 语言入门", "go-语言入门"},
		{"2025-03-07", "2025-03-07"},
		{"2025年03月07日", "2025年03月07日"},
		{"---", ""},
		{"", ""},
		{"pic.png", "picpng"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
	}
	for _, c := range cases {
		if got := Make(c.in); got != c.want {
			t.Errorf("Make(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMake_Idempotent(t *testing.T) {
	inputs := []string{"Other Note", "a -- b", "Ünïcödé Title", "学习 笔记!", " -x- ", "C++ & Go"}
	for _, in := range inputs {
		once := Make(in)
		if twice := Make(once); twice != once {
			t.Errorf("Make(Make(%q)) = %q, want %q", in, twice, once)
		}
		if again := Make(in); again != once {
			t.Errorf("Make(%q) not stable: %q vs %q", in, again, once)
		}
	}
}
