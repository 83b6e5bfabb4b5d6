package probe

// snippet.go generates the sbt task that dumps a subproject's
// compilation setup.

import (
	"fmt"
	"strings"
)

const taskPrefix = "getAllSourcesAndClasspath"

// TaskName returns the name of the probe task for subproject. ASCII letters
// and digits are kept, '_' becomes "__" and every other byte becomes "_xHH",
// so distinct subprojects always get distinct, valid Scala identifiers.
func TaskName(subproject string) string {
	var b strings.Builder
	b.WriteString(taskPrefix)
	b.WriteByte('_')
	for i := 0; i < len(subproject); i++ {
		c := subproject[i]
		switch {
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			b.WriteByte(c)
		case c == '_':
			b.WriteString("__")
		default:
			fmt.Fprintf(&b, "_x%02x", c)
		}
	}
	return b.String()
}

// OutputFileName returns the file, relative to the build root, that the probe
// task for subproject writes.
func OutputFileName(subproject string) string {
	return fmt.Sprintf("%s-%s.out", taskPrefix, subproject)
}

// Snippet returns the build definition fragment declaring the probe task for
// subproject. The task writes three terminated lines: sources, classpath,
// options. Any of them may be empty.
func Snippet(subproject string) string {
	name := TaskName(subproject)
	ref := fmt.Sprintf("LocalProject(%s)", scalaString(subproject))

	var b strings.Builder
	// .sbt files need blank lines between settings
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "lazy val %s = taskKey[Unit](%s)\n\n", name, scalaString("Writes sources, classpath and scalac options of "+subproject))
	fmt.Fprintf(&b, "%s := {\n", name)
	fmt.Fprintf(&b, "  val sources = (%s / Compile / Keys.sources).value.map(_.getAbsolutePath).mkString(\" \")\n", ref)
	fmt.Fprintf(&b, "  val classpath = (%s / Compile / dependencyClasspath).value.map(_.data.getAbsolutePath).mkString(java.io.File.pathSeparator)\n", ref)
	fmt.Fprintf(&b, "  val options = (%s / Compile / scalacOptions).value.mkString(\" \")\n", ref)
	fmt.Fprintf(&b, "  IO.writeLines((ThisBuild / baseDirectory).value / %s, Seq(sources, classpath, options))\n", scalaString(OutputFileName(subproject)))
	b.WriteString("}\n")
	return b.String()
}

func scalaString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
