package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dta-labs/create-dta/internal/catalog"
)

// prompter asks for missing options with numbered menus on a line-based
// reader.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), w: w}
}

func (p *prompter) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// text asks for a free-form value, returning def for an empty answer.
func (p *prompter) text(label, def string, validate func(string) error) (string, error) {
	if def != "" {
		fmt.Fprintf(p.w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.w, "%s: ", label)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		answer = def
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

// choose presents a numbered list and returns the selected index. An
// empty answer selects the first item.
func (p *prompter) choose(label string, items []string) (int, error) {
	fmt.Fprintf(p.w, "\n%s\n", label)
	for i, item := range items {
		fmt.Fprintf(p.w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(p.w, "Enter number [1-%d] (default 1): ", len(items))

	answer, err := p.readLine()
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(items) {
		return 0, fmt.Errorf("invalid selection %q: choose 1-%d", answer, len(items))
	}
	return n - 1, nil
}

// chooseMany presents a numbered list and returns the selected indexes in
// the order given. An empty answer selects nothing.
func (p *prompter) chooseMany(label string, items []string) ([]int, error) {
	fmt.Fprintf(p.w, "\n%s\n", label)
	for i, item := range items {
		fmt.Fprintf(p.w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprint(p.w, "Enter numbers separated by commas (blank for none): ")

	answer, err := p.readLine()
	if err != nil {
		return nil, err
	}
	var picked []int
	seen := make(map[int]bool)
	for _, field := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ' ' }) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(items) {
			return nil, fmt.Errorf("invalid selection %q: choose 1-%d", field, len(items))
		}
		if !seen[n] {
			seen[n] = true
			picked = append(picked, n-1)
		}
	}
	return picked, nil
}

// template asks for a base template and returns a key or raw locator.
func (p *prompter) template(list []catalog.TemplateDescriptor) (string, error) {
	items := make([]string, len(list))
	for i, d := range list {
		items[i] = fmt.Sprintf("%s - %s", d.DisplayName, d.Description)
	}
	i, err := p.choose("Choose Turborepo base template:", items)
	if err != nil {
		return "", err
	}
	if !list[i].IsCustom() {
		return list[i].Key, nil
	}
	return p.text("GitHub repository (owner/repo/path)", "vercel/turborepo/examples/basic", func(s string) error {
		if !strings.Contains(s, "/") {
			return fmt.Errorf("invalid format %q, example: owner/repo/path", s)
		}
		return nil
	})
}

// features asks which registered features to add.
func (p *prompter) features(list []catalog.Feature) ([]string, error) {
	items := make([]string, len(list))
	for i, f := range list {
		items[i] = fmt.Sprintf("%s - %s", f.Name, f.Description)
	}
	picked, err := p.chooseMany("Select DTA features:", items)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(picked))
	for _, i := range picked {
		ids = append(ids, list[i].ID)
	}
	return ids, nil
}

func requireNonEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("project name is required")
	}
	return nil
}
