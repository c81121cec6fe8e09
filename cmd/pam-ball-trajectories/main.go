// Command pam-ball-trajectories records and queries ball trajectories.
//
// Build metadata is set with
//
//	-ldflags "-X github.com/intelligent-soft-robots/balltraj/internal/version.Version=v1.2.0
//	          -X github.com/intelligent-soft-robots/balltraj/internal/version.GitSHA=$(git rev-parse --short HEAD)"
package main

import "github.com/intelligent-soft-robots/balltraj/internal/cli"

func main() {
	cli.Main()
}
