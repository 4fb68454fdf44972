package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptArgument is one templated argument, written as {{name}} in the body.
type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default"`
}

// promptFrontmatter is parsed from the YAML frontmatter of a prompt file.
type promptFrontmatter struct {
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
}

type promptDef struct {
	Name string
	promptFrontmatter
	Body string
}

// loadPrompts reads every embedded prompt in name order.
func loadPrompts() ([]promptDef, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, err
	}

	var defs []promptDef
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			return nil, err
		}
		fm, body := parseFrontmatter(content)
		defs = append(defs, promptDef{
			Name:              strings.TrimSuffix(entry.Name(), ".md"),
			promptFrontmatter: fm,
			Body:              body,
		})
	}
	return defs, nil
}

func (s *Server) registerPrompts() {
	defs, err := loadPrompts()
	if err != nil {
		return
	}
	for _, def := range defs {
		prompt := &mcp.Prompt{Name: def.Name, Description: def.Description}
		for _, arg := range def.Arguments {
			prompt.Arguments = append(prompt.Arguments, &mcp.PromptArgument{
				Name:        arg.Name,
				Description: arg.Description,
			})
		}
		s.server.AddPrompt(prompt, makePromptHandler(def))
	}
}

// parseFrontmatter splits YAML frontmatter from the body. Content without
// valid frontmatter is returned whole as the body.
func parseFrontmatter(content []byte) (promptFrontmatter, string) {
	var fm promptFrontmatter
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, string(content)
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return fm, string(content)
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return promptFrontmatter{}, string(content)
	}
	return fm, strings.TrimPrefix(string(rest[end+5:]), "\n")
}

// render substitutes arguments into the body, falling back to defaults.
func (d promptDef) render(args map[string]string) string {
	pairs := make([]string, 0, 2*len(d.Arguments))
	for _, arg := range d.Arguments {
		value := args[arg.Name]
		if value == "" {
			value = arg.Default
		}
		pairs = append(pairs, "{{"+arg.Name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(d.Body)
}

func makePromptHandler(def promptDef) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		return &mcp.GetPromptResult{
			Description: def.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: def.render(args)},
				},
			},
		}, nil
	}
}
