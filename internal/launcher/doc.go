// Package launcher renders platform launch scripts from templates.
//
// A template is plain text with `{{name}}` placeholders. Render replaces
// each placeholder with its substitution in a single pass; values are never
// scanned again, so a value that itself contains `{{...}}` is emitted
// literally. Any placeholder without a substitution fails the render.
//
// GenerateScripts renders one script per included platform into an
// ArtifactStore and deletes scripts of excluded platforms left over from
// earlier runs. Given the same inputs it writes byte-identical output.
package launcher
