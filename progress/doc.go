/*Package progress renders live progress bars and spinners on a terminal.

Bars are updated concurrently from any number of goroutines. A Multi
coordinator owns the terminal region, serializes every physical write, and
redraws the bars it manages in a stable order. A DrawTarget decides how a
frame reaches the output: redrawn in place on an interactive terminal, appended
to a plain stream, or discarded.

Example

This example renders two bars that share stderr.

    mp := progress.NewMulti(progress.Stderr())
    download := progress.NewBar(1024)
    unpack := progress.NewBar(64)
    mp.Add(download)
    mp.Add(unpack)

    go func() {
        for chunk := range chunks {
            download.Inc(uint64(len(chunk)))
        }
        download.Finish()
    }()

Templates are compiled once, when a Style or Bar is created:

    style, err := progress.NewStyle("{spinner} [{elapsed}] {bar:40.cyan/blue} {pos}/{len} eta {eta}")
    if err != nil {
        return err
    }

*/
package progress // import "github.com/astralkn/termprogress/progress"
