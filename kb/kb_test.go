package kb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/types"
)

const aboutFixture = `# About

We build things.

## Q1: When was the company founded?
The company was founded in 2015 in Karachi.

## Q2: How many employees do you have?
We employ around 250 people across three offices.

## Q3: What industries do you serve?
We serve healthcare, aviation and retail.
`

func TestParseDocument(t *testing.T) {
	doc := ParseDocument("about_company", aboutFixture)

	assert.Equal(t, "# About\n\nWe build things.", doc.Preamble)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Q1: When was the company founded?", doc.Sections[0].Heading)
	assert.Equal(t, "The company was founded in 2015 in Karachi.", doc.Sections[0].Body)
	assert.Contains(t, doc.Text(), "## Q2: How many employees do you have?")
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about_company.md"), []byte(aboutFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	lib, err := Load(dir, nil)
	require.NoError(t, err)

	doc, err := lib.Document("about_company")
	require.NoError(t, err)
	assert.Len(t, doc.Sections, 3)

	_, err = lib.Document("notes")
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestLoadMissingDirectory(t *testing.T) {
	lib, err := Load(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	_, err = lib.Document("about_company")
	assert.Error(t, err)
}

func TestSelectorUsesModelPick(t *testing.T) {
	doc := ParseDocument("about_company", aboutFixture)
	client := llm.CompleteFunc(func(_ context.Context, req llm.Request) (string, error) {
		assert.Contains(t, req.User, "Q2: How many employees do you have?")
		return "Q3: What industries do you serve?", nil
	})

	sec, err := NewSelector(client, "test-model", nil).Select(context.Background(), doc, "which industries?")
	require.NoError(t, err)
	assert.Equal(t, "Q3: What industries do you serve?", sec.Heading)
}

func TestSelectorFallsBackOnModelFailure(t *testing.T) {
	doc := ParseDocument("about_company", aboutFixture)
	client := llm.CompleteFunc(func(_ context.Context, _ llm.Request) (string, error) {
		return "", errors.New("upstream down")
	})

	sec, err := NewSelector(client, "test-model", nil).Select(context.Background(), doc, "when was the company founded")
	require.NoError(t, err)
	assert.Equal(t, "Q1: When was the company founded?", sec.Heading)
}

func TestSelectorFallsBackOnUnknownHeading(t *testing.T) {
	doc := ParseDocument("about_company", aboutFixture)
	client := llm.CompleteFunc(func(_ context.Context, _ llm.Request) (string, error) {
		return "Q9: Something invented", nil
	})

	sec, err := NewSelector(client, "test-model", nil).Select(context.Background(), doc, "employees headcount people")
	require.NoError(t, err)
	assert.Equal(t, "Q2: How many employees do you have?", sec.Heading)
}

func TestSelectorSingleSectionSkipsModel(t *testing.T) {
	doc := ParseDocument("leadership", "## Team\nOur CEO is Jane Doe.")
	called := false
	client := llm.CompleteFunc(func(_ context.Context, _ llm.Request) (string, error) {
		called = true
		return "", nil
	})

	sec, err := NewSelector(client, "test-model", nil).Select(context.Background(), doc, "who runs it")
	require.NoError(t, err)
	assert.Equal(t, "Team", sec.Heading)
	assert.False(t, called)
}

func TestSelectorEmptyDocument(t *testing.T) {
	_, err := NewSelector(nil, "test-model", nil).Select(context.Background(), Document{Name: "empty"}, "anything")
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}
