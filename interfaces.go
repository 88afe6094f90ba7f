package beanbag

import "github.com/ajtowns/beanbag/namespace"

// Capabilities implemented by BeanBag.
var (
	_ Requester                     = (*BeanBag)(nil)
	_ namespace.Parameterizer[Path] = (*BeanBag)(nil)
	_ namespace.Invoker[Path]       = (*BeanBag)(nil)
	_ namespace.Assigner[Path]      = (*BeanBag)(nil)
	_ namespace.Remover[Path]       = (*BeanBag)(nil)
	_ namespace.Augmenter[Path]     = (*BeanBag)(nil)
)
