package translate

import "testing"

func TestIsSupported(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"en", "ru", "zh", "fa", "vi"} {
		if !IsSupported(code) {
			t.Fatalf("%q should be supported", code)
		}
	}
	for _, code := range []string{"", "xx", "english", "EN"} {
		if IsSupported(code) {
			t.Fatalf("%q should not be supported", code)
		}
	}
}

func TestSupportedCodesSortedAndNamed(t *testing.T) {
	t.Parallel()

	codes := SupportedCodes()
	if len(codes) != len(languageNames) {
		t.Fatalf("expected %d codes, got %d", len(languageNames), len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		if languageNames[code] == "" {
			t.Fatalf("code %q has no language name", code)
		}
	}
}

func TestDeepLSubsetOfSupported(t *testing.T) {
	t.Parallel()

	for code := range deeplLangs {
		if !IsSupported(code) {
			t.Fatalf("deepl language %q missing from the supported set", code)
		}
	}
}
