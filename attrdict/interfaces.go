package attrdict

import "github.com/ajtowns/beanbag/namespace"

var (
	_ namespace.Base[Keys]      = (*AttrDict)(nil)
	_ namespace.Assigner[Keys]  = (*AttrDict)(nil)
	_ namespace.Remover[Keys]   = (*AttrDict)(nil)
	_ namespace.Augmenter[Keys] = (*AttrDict)(nil)
	_ namespace.Unwrapper[Keys] = (*AttrDict)(nil)
	_ namespace.Lener[Keys]     = (*AttrDict)(nil)
	_ namespace.Ranger[Keys]    = (*AttrDict)(nil)
)
