// Command forumcorpus collects subreddit listings into a raw CSV dataset and
// turns it into a topic-labeled corpus. See the cmd package for the commands.
package main

import (
	"github.com/JakeFAU/forum-corpus/cmd"
)

func main() {
	cmd.Execute()
}
