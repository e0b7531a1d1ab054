// Command viewcounter serves the view count form and looks up view counts
// from the command line.
package main

func main() {
	Execute()
}
