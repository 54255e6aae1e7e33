package common

// Invoke thunk repeatedly, protecting it against panics.  Panic messages go to the shared logger.
// The outer loop is not necessarily cheap so it is best if the thunk also has internal looping to
// defray the cost in the common case.

func Forever(tag string, thunk func()) {
	guarded := func() {
		defer func() {
			if msg := recover(); msg != nil {
				Log.Errorf("%s: recovered: %v", tag, msg)
			}
		}()
		thunk()
	}
	for {
		guarded()
	}
}
