//go:build !unix

package flamegraph

func checkExecutable(string) error {
	return nil
}
