package cleaner

import "testing"

func TestExtractCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "plain-command", text: "/start", want: "start"},
		{name: "command-with-args", text: "/ban @user spam", want: "ban"},
		{name: "command-with-botname", text: "/start@butcherbot now", want: "start"},
		{name: "not-a-command", text: "hello /start", want: ""},
		{name: "bare-slash", text: "/", want: ""},
		{name: "slash-with-punctuation", text: "/??", want: ""},
		{name: "empty", text: "", want: ""},
		{name: "underscored", text: "/roll_dice", want: "roll_dice"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractCommand(tt.text); got != tt.want {
				t.Fatalf("ExtractCommand(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsWhitelisted(t *testing.T) {
	t.Parallel()

	c := &Cleaner{whitelist: []string{"start", "help", "settings"}}
	if !c.IsWhitelisted("start") {
		t.Fatal("start must be whitelisted")
	}
	if !c.IsWhitelisted("HELP") {
		t.Fatal("whitelist check must be case-insensitive")
	}
	if c.IsWhitelisted("ban") {
		t.Fatal("ban must not be whitelisted")
	}
}
