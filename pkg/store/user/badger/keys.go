package badger

// Key layout
//
//	"u:" u:<account>  User (JSON)
//
// Account names are case-sensitive, so keys are stored verbatim.
const prefixUser = "u:"

func keyUser(account string) []byte {
	return []byte(prefixUser + account)
}
