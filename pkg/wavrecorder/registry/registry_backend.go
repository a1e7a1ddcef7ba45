package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
)

type BackendFactory interface {
	NewBackend(ctx context.Context, eventSink types.EventSink) (types.Backend, error)
}

type backendFactoryWithPriority struct {
	Priority int
	BackendFactory
}

var (
	backendFactoryRegistry       = map[reflect.Type]backendFactoryWithPriority{}
	backendFactoryRegistryLocker sync.Mutex
)

func factoryType(factory BackendFactory) reflect.Type {
	t := reflect.ValueOf(factory).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// RegisterBackendFactory makes a backend available for automatic
// selection; higher priorities are tried first.
func RegisterBackendFactory(
	priority int,
	backendFactory BackendFactory,
) {
	backendFactoryRegistryLocker.Lock()
	defer backendFactoryRegistryLocker.Unlock()

	t := factoryType(backendFactory)
	if _, ok := backendFactoryRegistry[t]; ok {
		panic(fmt.Errorf("there is already registered a factory of Backend of type %v", t))
	}
	backendFactoryRegistry[t] = backendFactoryWithPriority{
		Priority:       priority,
		BackendFactory: backendFactory,
	}
}

// UnregisterBackendFactory removes a factory registered with the same type.
func UnregisterBackendFactory(backendFactory BackendFactory) {
	backendFactoryRegistryLocker.Lock()
	defer backendFactoryRegistryLocker.Unlock()
	delete(backendFactoryRegistry, factoryType(backendFactory))
}

func BackendFactories() []BackendFactory {
	backendFactoryRegistryLocker.Lock()
	var factoriesWithPriorities []backendFactoryWithPriority
	for _, factory := range backendFactoryRegistry {
		factoriesWithPriorities = append(factoriesWithPriorities, factory)
	}
	backendFactoryRegistryLocker.Unlock()

	sort.Slice(factoriesWithPriorities, func(i, j int) bool {
		if factoriesWithPriorities[i].Priority != factoriesWithPriorities[j].Priority {
			return factoriesWithPriorities[i].Priority > factoriesWithPriorities[j].Priority
		}
		return factoryType(factoriesWithPriorities[i].BackendFactory).String() <
			factoryType(factoriesWithPriorities[j].BackendFactory).String()
	})

	var factories []BackendFactory
	for _, factory := range factoriesWithPriorities {
		factories = append(factories, factory.BackendFactory)
	}

	return factories
}
