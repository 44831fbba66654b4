package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	locales := bundle.Locales()
	if len(locales) != 2 || locales[0] != BaseLocale || locales[1] != "ru-RU" {
		t.Fatalf("locales = %v, want [en-US ru-RU]", locales)
	}
	for _, namespace := range []string{"bot", "buttons", "choices"} {
		if len(bundle.NamespaceMessages(BaseLocale, namespace)) == 0 {
			t.Fatalf("expected en-US %s namespace messages", namespace)
		}
	}
}

func TestEmbeddedLocalesDefineSameKeys(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	for _, namespace := range []string{"bot", "buttons", "choices"} {
		base := bundle.NamespaceMessages(BaseLocale, namespace)
		ru := bundle.NamespaceMessages("ru-RU", namespace)
		for key := range base {
			if _, ok := ru[key]; !ok {
				t.Fatalf("ru-RU %s missing key %q", namespace, key)
			}
		}
		if len(base) != len(ru) {
			t.Fatalf("%s key count en-US=%d ru-RU=%d", namespace, len(base), len(ru))
		}
	}
}

func TestEmbeddedCatalogsPassParity(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if err := bundle.CheckParity(); err != nil {
		t.Fatalf("parity: %v", err)
	}
}

func TestCheckParityReportsMissingKeys(t *testing.T) {
	bundle, err := LoadFromFS(fstest.MapFS{
		"locales/en-US/bot.yaml": {Data: []byte("locale: en-US\nnamespace: bot\nmessages:\n  greet: Hi\n  bye: Bye\n")},
		"locales/ru-RU/bot.yaml": {Data: []byte("locale: ru-RU\nnamespace: bot\nmessages:\n  greet: Привет\n")},
	})
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	err = bundle.CheckParity()
	if err == nil {
		t.Fatal("expected parity error")
	}
	if !strings.Contains(err.Error(), "ru-RU/bot/bye") {
		t.Fatalf("error = %v, want missing ru-RU/bot/bye", err)
	}
}

func TestMatch(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	tests := []struct {
		prefs []string
		want  string
	}{
		{prefs: nil, want: "en-US"},
		{prefs: []string{" "}, want: "en-US"},
		{prefs: []string{"ru"}, want: "ru-RU"},
		{prefs: []string{"ru-RU"}, want: "ru-RU"},
		{prefs: []string{"en-GB"}, want: "en-US"},
		{prefs: []string{"ja"}, want: "en-US"},
		{prefs: []string{"fr", "ru"}, want: "ru-RU"},
	}
	for _, tc := range tests {
		if got := bundle.Match(tc.prefs...); got != tc.want {
			t.Fatalf("Match(%v) = %q, want %q", tc.prefs, got, tc.want)
		}
	}
}

func TestPrinterTextAndFallbacks(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	ru := bundle.Printer("ru-RU")
	if got := ru.Text("lane.jungle"); got != "Лес" {
		t.Fatalf("ru lane.jungle = %q, want Лес", got)
	}
	if got := bundle.Printer("fr-FR").Locale(); got != BaseLocale {
		t.Fatalf("unknown locale printer = %q, want %q", got, BaseLocale)
	}
	if got := ru.Text("missing.key"); got != "missing.key" {
		t.Fatalf("missing key text = %q, want key", got)
	}
}

func TestPrinterFormat(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	got := bundle.Printer(BaseLocale).Format("match.notice", map[string]string{"Nickname": "Shadow", "Contact": "@shadow"})
	if !strings.Contains(got, "Shadow") || !strings.Contains(got, "@shadow") {
		t.Fatalf("formatted match notice = %q", got)
	}
}

func TestPrinterMatchesLocalizedAndBaseLabels(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	ru := bundle.Printer("ru-RU")
	if !ru.Matches("button.back", "⬅️ Назад") {
		t.Fatal("expected localized label match")
	}
	if !ru.Matches("button.back", " ⬅️ Back ") {
		t.Fatal("expected base label match")
	}
	if ru.Matches("button.back", "Back") {
		t.Fatal("unexpected partial match")
	}
	if ru.Matches("button.back", "") {
		t.Fatal("blank input must not match")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/bot.yaml"), `locale: "en-US"
namespace: "bot"
messages:
  "broken": "{{ if .Name }}"
`)
	bundle, err := LoadFromFS(os.DirFS(dir))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if got := bundle.Printer(BaseLocale).Format("broken", map[string]string{"Name": "x"}); got != "{{ if .Name }}" {
		t.Fatalf("format fallback = %q", got)
	}
}

func TestLoadFromFSRejectsDuplicateKeysAcrossNamespaces(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/bot.yaml"), `locale: "en-US"
namespace: "bot"
messages:
  "a.key": "a"
`)
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/buttons.yaml"), `locale: "en-US"
namespace: "buttons"
messages:
  "a.key": "b"
`)
	if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestLoadFromFSRejectsMismatchedLocale(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/en-US/bot.yaml"), `locale: "ru-RU"
namespace: "bot"
messages:
  "a.key": "a"
`)
	if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "locales/ru-RU/bot.yaml"), `locale: "ru-RU"
namespace: "bot"
messages:
  "a.key": "a"
`)
	if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
