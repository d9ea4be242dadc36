package models

import "errors"

// Hard failures: these abort a resolution because no tract identifier exists
// for downstream sources to use.
var (
	ErrAddressIncomplete = errors.New("incomplete address: need street, city, state, zip")
	ErrAddressNotFound   = errors.New("address could not be geocoded: no matches returned")
	ErrTractNotFound     = errors.New("census tract not found for this address")
)
