// Audiomanifest generates the audio manifest module a React Native bundler
// uses to resolve bundled audio clips.
package main

import "github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/cli"

func main() {
	cli.Execute()
}
