// Command kmerml encodes genomic sequences as k-mer profiles and evaluates
// binding-site classifiers on them.
package main

func main() {
	Execute()
}
