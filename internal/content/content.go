// Package content discovers the documentation pages and blog posts of the
// site. It reads their front matter to learn the routes the generator will
// publish; it does not render Markdown.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extensions are the file extensions treated as content.
var Extensions = []string{".md", ".mdx"}

// Doc is one documentation page.
type Doc struct {
	// ID is the doc id used by navbar doc items, e.g. "intro" or
	// "guides/setup".
	ID string
	// Route is the site path relative to the base path, e.g. "/docs/intro".
	Route           string
	Title           string
	SidebarPosition int
	Draft           bool
	// SourcePath is the file the doc was read from.
	SourcePath string
}

// Post is one blog post.
type Post struct {
	Slug       string
	Route      string
	Title      string
	Date       string
	Draft      bool
	SourcePath string
}

// FrontMatter holds the keys the generator reads from a content file.
type FrontMatter struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Slug            string `yaml:"slug"`
	SidebarPosition int    `yaml:"sidebar_position"`
	Draft           bool   `yaml:"draft"`
	Date            string `yaml:"date"`
}

var (
	numberPrefix = regexp.MustCompile(`^\d+[-_.]`)
	datePrefix   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)
	titleCaser   = cases.Title(language.English)
)

// IsContentFile reports whether name has one of the content extensions.
func IsContentFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseFrontMatter reads the front matter of data. Content without front
// matter yields a zero FrontMatter.
func ParseFrontMatter(data []byte) (FrontMatter, error) {
	var fm FrontMatter
	if _, err := frontmatter.Parse(bytes.NewReader(data), &fm); err != nil {
		return FrontMatter{}, err
	}
	return fm, nil
}

// LabelFromName turns a file stem such as "getting-started" into
// "Getting Started".
func LabelFromName(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = numberPrefix.ReplaceAllString(stem, "")
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return titleCaser.String(strings.TrimSpace(stem))
}

// Discover lists the docs below dir sorted by id. A missing dir yields no
// docs and no error.
func Discover(dir string) ([]Doc, error) {
	var docs []Doc
	err := walkContent(dir, func(rel string, data []byte) error {
		fm, err := ParseFrontMatter(data)
		if err != nil {
			return fmt.Errorf("front matter of %s: %w", rel, err)
		}
		docs = append(docs, newDoc(rel, fm, filepath.Join(dir, rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func newDoc(rel string, fm FrontMatter, source string) Doc {
	rel = filepath.ToSlash(rel)
	dir, file := path.Split(rel)
	stem := numberPrefix.ReplaceAllString(strings.TrimSuffix(file, path.Ext(file)), "")

	local := stem
	if fm.ID != "" {
		local = fm.ID
	}
	id := strings.TrimPrefix(path.Join(dir, local), "/")

	route := "/docs/" + id
	if fm.Slug != "" {
		if strings.HasPrefix(fm.Slug, "/") {
			route = "/docs" + fm.Slug
		} else {
			route = "/docs/" + path.Join(dir, fm.Slug)
		}
	}

	title := fm.Title
	if title == "" {
		title = LabelFromName(file)
	}

	return Doc{
		ID:              id,
		Route:           route,
		Title:           title,
		SidebarPosition: fm.SidebarPosition,
		Draft:           fm.Draft,
		SourcePath:      source,
	}
}

// DiscoverPosts lists the blog posts below dir, newest first. File names
// of the form 2024-01-31-title.md publish under /blog/2024/01/31/title.
func DiscoverPosts(dir string) ([]Post, error) {
	var posts []Post
	err := walkContent(dir, func(rel string, data []byte) error {
		fm, err := ParseFrontMatter(data)
		if err != nil {
			return fmt.Errorf("front matter of %s: %w", rel, err)
		}
		posts = append(posts, newPost(rel, fm, filepath.Join(dir, rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date != posts[j].Date {
			return posts[i].Date > posts[j].Date
		}
		return posts[i].Slug < posts[j].Slug
	})
	return posts, nil
}

func newPost(rel string, fm FrontMatter, source string) Post {
	rel = filepath.ToSlash(rel)
	file := path.Base(rel)
	stem := strings.TrimSuffix(file, path.Ext(file))
	// Folder posts, e.g. 2024-01-31-title/index.md, take the folder name.
	if stem == "index" && path.Dir(rel) != "." {
		stem = path.Base(path.Dir(rel))
	}

	post := Post{
		Slug:       stem,
		Title:      fm.Title,
		Date:       fm.Date,
		Draft:      fm.Draft,
		SourcePath: source,
	}

	route := "/blog/" + stem
	if m := datePrefix.FindStringSubmatch(stem); m != nil {
		post.Slug = m[4]
		if post.Date == "" {
			post.Date = m[1] + "-" + m[2] + "-" + m[3]
		}
		route = "/blog/" + path.Join(m[1], m[2], m[3], m[4])
	}
	if fm.Slug != "" {
		post.Slug = strings.TrimPrefix(fm.Slug, "/")
		route = "/blog/" + post.Slug
	}
	post.Route = route

	if post.Title == "" {
		post.Title = LabelFromName(post.Slug)
	}
	return post
}

// walkContent calls fn for every content file below dir with its path
// relative to dir. Hidden files and directories are skipped.
func walkContent(dir string, fn func(rel string, data []byte) error) error {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsContentFile(name) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return fn(rel, data)
	})
}

// Routes returns the routes of the non-draft docs and posts.
func Routes(docs []Doc, posts []Post) []string {
	routes := make([]string, 0, len(docs)+len(posts))
	for _, d := range docs {
		if !d.Draft {
			routes = append(routes, d.Route)
		}
	}
	for _, p := range posts {
		if !p.Draft {
			routes = append(routes, p.Route)
		}
	}
	return routes
}
