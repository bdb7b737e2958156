/*
Package domain contains the vocabulary shared by every relux package.

It is kept free of I/O and of the pipeline machinery itself so that state,
saga, relay and adapter packages can all depend on it without cycles.

# Key Entities

  - Action: an immutable value describing something that happened.
  - Dispatch: the function shape used to route actions into the pipeline.
  - LifecycleHooks: optional callbacks fired around each dispatch.
  - Sentinel errors: configuration failures (duplicate relay, second bound
    instance) and expected misses, matched with errors.Is.
*/
package domain
