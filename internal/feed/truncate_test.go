package feed

import (
	"strings"
	"testing"
)

func TestTruncateShortStringUnchanged(t *testing.T) {
	s := "<p>short description</p> #science"
	if got := Truncate(s, DescriptionLimit); got != s {
		t.Errorf("Expected short string unchanged, got %q", got)
	}
}

func TestTruncateNeverLeavesOpenTagToken(t *testing.T) {
	// The limit lands inside the long run of text within <em>...</em>.
	s := strings.Repeat("a", 3500) + "<em>" + strings.Repeat("b", 600) + "</em>"
	got := Truncate(s, DescriptionLimit)

	if len([]rune(got)) > DescriptionLimit {
		t.Errorf("Result exceeds limit: %d runes", len([]rune(got)))
	}
	lastOpen := strings.LastIndex(got, "<")
	lastClose := strings.LastIndex(got, ">")
	if lastOpen > lastClose {
		t.Errorf("Result ends inside a tag token: ...%s", got[lastOpen:])
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("Expected ellipsis suffix")
	}
}

func TestTruncateDoesNotSplitHashtagBlock(t *testing.T) {
	// The limit lands in the middle of the trailing hashtag block.
	s := "<p>" + strings.Repeat("word ", 790) + "</p> #physics #quantummechanics #standardmodel " + strings.Repeat("x", 300)
	got := Truncate(s, DescriptionLimit)

	// Every '#' in the result must begin a token that also appears
	// complete in the input.
	for i := strings.IndexByte(got, '#'); i >= 0; {
		rest := got[i:]
		end := strings.IndexAny(rest, " \n…")
		if end == -1 {
			end = len(rest)
		}
		token := rest[:end]
		if !strings.Contains(s, token+" ") && !strings.HasSuffix(s, token) {
			t.Errorf("Result contains split token %q", token)
		}
		next := strings.IndexByte(got[i+1:], '#')
		if next == -1 {
			break
		}
		i += 1 + next
	}
}

func TestTruncateCutsBeforeHashtagBlock(t *testing.T) {
	s := strings.Repeat("a", 3995) + " #hashtag" + strings.Repeat("b", 600)
	got := Truncate(s, DescriptionLimit)
	if strings.Contains(got, "#") {
		t.Errorf("Expected the hashtag to be dropped whole, got %q", got[len(got)-40:])
	}
}

func TestTruncateDoesNotSplitEntity(t *testing.T) {
	s := strings.Repeat("&amp;", 1000)
	got := Truncate(s, DescriptionLimit)

	trimmed := strings.TrimSuffix(got, "…")
	lastAmp := strings.LastIndex(trimmed, "&")
	if lastAmp >= 0 {
		rest := trimmed[lastAmp:]
		if !strings.Contains(rest, ";") {
			t.Errorf("Result ends inside an entity: ...%q", rest)
		}
	}
}

func TestTruncateDoesNotSplitURL(t *testing.T) {
	s := strings.Repeat("a", 3990) + " https://example.com/very/long/reference/path" + strings.Repeat("b", 200)
	got := Truncate(s, DescriptionLimit)
	if strings.Contains(got, "https://") && !strings.Contains(got, "https://example.com/very/long/reference/path") {
		t.Errorf("URL split in result: ...%q", got[len(got)-60:])
	}
}

func TestTruncateRespectsLimit(t *testing.T) {
	inputs := []string{
		strings.Repeat("<p>paragraph of text</p>", 400),
		strings.Repeat("plain words with spaces ", 300),
		strings.Repeat("z", 5000),
	}
	for _, s := range inputs {
		got := Truncate(s, DescriptionLimit)
		if n := len([]rune(got)); n > DescriptionLimit {
			t.Errorf("Truncate produced %d runes, limit %d", n, DescriptionLimit)
		}
	}
}
