package mcpserver

import (
	"encoding/json"
)

const manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository locates the source.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes how a client launches the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	Version          string     `json:"version,omitempty"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport names the communication channel.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest returns the indented server.json for version.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	stdio := Transport{Type: "stdio"}
	mcpArg := []Argument{{Type: "positional", Value: "mcp"}}
	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/cogmark",
		Description: "Cognitive complexity scoring, gating and diffing for Python code",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/cogmark",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType:     "oci",
				Identifier:       "ghcr.io/panbanda/cogmark:" + version,
				PackageArguments: mcpArg,
				Transport:        stdio,
			},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}
