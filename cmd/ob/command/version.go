package command

import "fmt"

type VersionCmd struct {
	Detail bool `help:"Include detail about the commit and build date."`
}

type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

func (c *VersionCmd) Run(info *VersionInfo) error {
	output := info.Version
	if c.Detail {
		output = fmt.Sprintf("%s (%s %s)", output, info.Commit, info.Date)
	}
	fmt.Println(output)
	return nil
}
