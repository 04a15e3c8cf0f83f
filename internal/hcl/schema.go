package hcl

import "github.com/hashicorp/hcl/v2"

// projectSchema picks the project block out of a file in the first phase.
var projectSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "project", LabelNames: []string{"name"}}},
}

type projectBlock struct {
	Version  string `hcl:"version,optional"`
	BuildDir string `hcl:"build_dir,optional"`
}

// fileRoot decodes every block except project in the second phase.
type fileRoot struct {
	Modules      []*moduleBlock     `hcl:"module,block"`
	Gates        []*gateBlock       `hcl:"gate,block"`
	Application  *applicationBlock  `hcl:"application,block"`
	Distribution *distributionBlock `hcl:"distribution,block"`
}

type moduleBlock struct {
	ID         string            `hcl:"id,label"`
	Dir        string            `hcl:"dir,optional"`
	DependsOn  []string          `hcl:"depends_on,optional"`
	OutputDir  string            `hcl:"output_dir,optional"`
	Libraries  []string          `hcl:"libraries,optional"`
	JarName    string            `hcl:"jar_name,optional"`
	SourceSets []*sourceSetBlock `hcl:"source_set,block"`
}

type sourceSetBlock struct {
	Name string `hcl:"name,label"`
	Dir  string `hcl:"dir"`
}

type gateBlock struct {
	Name            string              `hcl:"name,label"`
	Kind            string              `hcl:"kind,optional"`
	RuleFile        string              `hcl:"rule_file,optional"`
	IgnoreFailures  bool                `hcl:"ignore_failures,optional"`
	MaxWarnings     int                 `hcl:"max_warnings,optional"`
	Includes        []string            `hcl:"includes,optional"`
	SuppressionFile string              `hcl:"suppression_file,optional"`
	Suppressions    []*suppressionBlock `hcl:"suppression,block"`
	SourceSets      []string            `hcl:"source_sets,optional"`
	Timeout         string              `hcl:"timeout,optional"`
	Report          *bool               `hcl:"report,optional"`
	Command         []string            `hcl:"command,optional"`
	OutputFormat    string              `hcl:"output_format,optional"`
	Pattern         string              `hcl:"pattern,optional"`
}

type suppressionBlock struct {
	SourceSet string `hcl:"source_set,label"`
	File      string `hcl:"file"`
}

type applicationBlock struct {
	Name      string   `hcl:"name,optional"`
	Module    string   `hcl:"module"`
	MainClass string   `hcl:"main_class"`
	JvmArgs   []string `hcl:"jvm_args,optional"`
}

type distributionBlock struct {
	Platforms []string         `hcl:"platforms,optional"`
	Exclude   []string         `hcl:"exclude,optional"`
	Templates []*templateBlock `hcl:"template,block"`
	Formats   []string         `hcl:"formats,optional"`
}

type templateBlock struct {
	Platform string `hcl:"platform,label"`
	Path     string `hcl:"path"`
}
