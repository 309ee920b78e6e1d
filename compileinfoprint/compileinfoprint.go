// compileinfoprint is imported for the side effect of logging the compileinfo
// when a binary starts.
package compileinfoprint

import "github.com/carbocation/neoantigen/compileinfo"

func init() {
	compileinfo.Log()
}
