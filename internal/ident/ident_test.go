package ident

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

type fakeSiblings struct {
	maxID  map[Scope]int64
	slugs  map[Scope][]string
	err    error
	gotFor string
}

func (f *fakeSiblings) MaxLocalID(_ context.Context, scope Scope) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.maxID[scope], nil
}

func (f *fakeSiblings) SlugsLike(_ context.Context, scope Scope, base string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.gotFor = base
	var out []string
	for _, s := range f.slugs[scope] {
		if s == base || strings.HasPrefix(s, base+"-") {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"My Project":            "my-project",
		"  Hello -- World  ":    "hello-world",
		"Crème Brûlée":          "creme-brulee",
		"C++ dev":               "c-dev",
		"don't stop":            "dont-stop",
		"snake_case_Title":      "snake_case_title",
		"_edge_":                "edge",
		"tabs\tand\nnewlines":   "tabs-and-newlines",
		"Version 2.0":           "version-20",
		"!!!":                   "",
		"проект":                "",
		"Already-slugged-value": "already-slugged-value",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestNextSlug(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	scope := Projects(user)

	src := &fakeSiblings{slugs: map[Scope][]string{}}
	got, err := NextSlug(ctx, src, scope, "My Project")
	require.NoError(t, err)
	require.Equal(t, "my-project", got)

	src.slugs[scope] = []string{"my-project"}
	got, err = NextSlug(ctx, src, scope, "My Project")
	require.NoError(t, err)
	require.Equal(t, "my-project-1", got)

	src.slugs[scope] = []string{"my-project", "my-project-1"}
	got, err = NextSlug(ctx, src, scope, "My Project")
	require.NoError(t, err)
	require.Equal(t, "my-project-2", got)

	// lowest free suffix wins regardless of insertion order
	src.slugs[scope] = []string{"my-project-3", "my-project", "my-project-2"}
	got, err = NextSlug(ctx, src, scope, "my project")
	require.NoError(t, err)
	require.Equal(t, "my-project-1", got)

	// other scopes do not count
	src.slugs[Projects(other)] = []string{"work"}
	got, err = NextSlug(ctx, src, scope, "Work")
	require.NoError(t, err)
	require.Equal(t, "work", got)

	got, err = NextSlug(ctx, src, scope, "???")
	require.NoError(t, err)
	require.Equal(t, DefaultSlug, got)
	require.Equal(t, DefaultSlug, src.gotFor)
}

func TestNextSlug_SourceError(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	_, err := NextSlug(context.Background(), &fakeSiblings{err: boom}, Projects(uuid.Must(uuid.NewV4())), "x")
	require.ErrorIs(t, err, boom)
}

func TestNextLocalID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	project := uuid.Must(uuid.NewV4())

	src := &fakeSiblings{maxID: map[Scope]int64{Credentials(project): 3}}

	got, err := NextLocalID(ctx, src, Credentials(project))
	require.NoError(t, err)
	require.Equal(t, int64(4), got)

	got, err = NextLocalID(ctx, src, Tasks(project))
	require.NoError(t, err)
	require.Equal(t, int64(1), got)

	boom := errors.New("db down")
	_, err = NextLocalID(ctx, &fakeSiblings{err: boom}, Tasks(project))
	require.ErrorIs(t, err, boom)
}

func TestScope_String(t *testing.T) {
	t.Parallel()
	id := uuid.Must(uuid.NewV4())
	require.Equal(t, "project_tasks:"+id.String(), Tasks(id).String())
	require.Equal(t, "kind(9)", Kind(9).String())
}
