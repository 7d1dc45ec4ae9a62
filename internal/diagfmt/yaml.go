package diagfmt

import (
	"encoding/json"
	"io"

	"sigs.k8s.io/yaml"

	"locheck/internal/diag"
	"locheck/internal/source"
)

// YAML renders the JSON document as YAML. Field names follow the json tags.
func YAML(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	data, err := json.Marshal(BuildReport(bag, fs, opts))
	if err != nil {
		return err
	}
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
