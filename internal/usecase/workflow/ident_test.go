package workflow

import "testing"

func TestNormalizeChannelIdent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"@kino", "@kino"},
		{"kino", "kino"},
		{"-1001234567890", "-1001234567890"},
		{"https://t.me/kino", "@kino"},
		{"t.me/kino", "@kino"},
		{"https://t.me/kino/", "@kino"},
		{"https://t.me/kino?start=abc", "@kino"},
		{"  https://t.me/kino  ", "@kino"},
		{"https://t.me/+AbCdEf", "https://t.me/+AbCdEf"},
	}
	for _, c := range cases {
		if got := NormalizeChannelIdent(c.in); got != c.want {
			t.Errorf("NormalizeChannelIdent(%q) = %q, ожидали %q", c.in, got, c.want)
		}
	}
}

func TestIsPrivateInvite(t *testing.T) {
	if !IsPrivateInvite("https://t.me/+AbCdEf") {
		t.Error("invite-ссылка не распознана")
	}
	if IsPrivateInvite("@kino") || IsPrivateInvite("https://t.me/kino") {
		t.Error("ложное срабатывание на публичном идентификаторе")
	}
}

func TestSplitCaption(t *testing.T) {
	cases := []struct {
		in    string
		title string
		desc  string
	}{
		{"Interstellar - Fantastika", "Interstellar", "Fantastika"},
		{"Interstellar", "Interstellar", ""},
		{"", "", ""},
		{"A - B - C", "A", "B - C"},
		{"  Nomi  -  Tavsif  ", "Nomi", "Tavsif"},
	}
	for _, c := range cases {
		title, desc := SplitCaption(c.in)
		if title != c.title || desc != c.desc {
			t.Errorf("SplitCaption(%q) = (%q, %q), ожидали (%q, %q)", c.in, title, desc, c.title, c.desc)
		}
	}
}
